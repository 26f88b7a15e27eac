package clients

import (
	"fmt"
	"os"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

var (
	vaultOnce   sync.Once
	vaultClient *vault.Client
)

// VaultEnabled reports whether secret values should live in Vault instead of
// encrypted DB columns.
func VaultEnabled() bool {
	return os.Getenv("VAULT_ADDR") != ""
}

func vaultAPI() (*vault.Client, error) {
	var err error
	vaultOnce.Do(func() {
		// DefaultConfig reads VAULT_ADDR and friends from the environment.
		vaultClient, err = vault.NewClient(vault.DefaultConfig())
		if err == nil && os.Getenv("VAULT_TOKEN") != "" {
			vaultClient.SetToken(os.Getenv("VAULT_TOKEN"))
		}
	})
	if vaultClient == nil {
		return nil, fmt.Errorf("vault client not initialized: %w", err)
	}
	return vaultClient, nil
}

func secretPath(tenantID, name string) string {
	return fmt.Sprintf("secret/data/tenants/%s/%s", tenantID, name)
}

// WriteVaultSecret stores a value in the KV v2 engine under the tenant path.
func WriteVaultSecret(tenantID, name, value string) error {
	client, err := vaultAPI()
	if err != nil {
		return err
	}
	_, err = client.Logical().Write(secretPath(tenantID, name), map[string]interface{}{
		"data": map[string]interface{}{"value": value},
	})
	return err
}

// ReadVaultSecret fetches a value previously stored with WriteVaultSecret.
func ReadVaultSecret(tenantID, name string) (string, error) {
	client, err := vaultAPI()
	if err != nil {
		return "", err
	}
	secret, err := client.Logical().Read(secretPath(tenantID, name))
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found in vault: %s", name)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected vault response for %s", name)
	}
	value, _ := data["value"].(string)
	return value, nil
}

// DeleteVaultSecret removes the value; missing paths are not an error.
func DeleteVaultSecret(tenantID, name string) error {
	client, err := vaultAPI()
	if err != nil {
		return err
	}
	_, err = client.Logical().Delete(secretPath(tenantID, name))
	return err
}
