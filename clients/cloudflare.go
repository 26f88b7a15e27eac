package clients

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/cloudflare/cloudflare-go"
)

var (
	cfOnce sync.Once
	cfAPI  *cloudflare.API
	cfErr  error
)

func cf() (*cloudflare.API, error) {
	cfOnce.Do(func() {
		token := os.Getenv("CLOUDFLARE_API_TOKEN")
		if token == "" {
			cfErr = errors.New("cloudflare not configured (set CLOUDFLARE_API_TOKEN)")
			return
		}
		cfAPI, cfErr = cloudflare.NewWithAPIToken(token)
	})
	return cfAPI, cfErr
}

func cfAccount() *cloudflare.ResourceContainer {
	return cloudflare.AccountIdentifier(os.Getenv("CLOUDFLARE_ACCOUNT_ID"))
}

func cfZone() *cloudflare.ResourceContainer {
	return cloudflare.ZoneIdentifier(os.Getenv("CLOUDFLARE_ZONE_ID"))
}

// CreatePagesDeployment triggers a new production deployment for a Pages
// project and returns the provider's deployment record.
func CreatePagesDeployment(ctx context.Context, project, branch string) (cloudflare.PagesProjectDeployment, error) {
	api, err := cf()
	if err != nil {
		return cloudflare.PagesProjectDeployment{}, err
	}
	params := cloudflare.CreatePagesDeploymentParams{ProjectName: project}
	if branch != "" {
		params.Branch = branch
	}
	return api.CreatePagesDeployment(ctx, cfAccount(), params)
}

// CreateDNSRecord points a custom hostname at the edge via a proxied CNAME.
func CreateDNSRecord(ctx context.Context, hostname, target string) (cloudflare.DNSRecord, error) {
	api, err := cf()
	if err != nil {
		return cloudflare.DNSRecord{}, err
	}
	proxied := true
	return api.CreateDNSRecord(ctx, cfZone(), cloudflare.CreateDNSRecordParams{
		Type:    "CNAME",
		Name:    hostname,
		Content: target,
		TTL:     1, // automatic
		Proxied: &proxied,
	})
}

// DeleteDNSRecord removes a record created by CreateDNSRecord.
func DeleteDNSRecord(ctx context.Context, recordID string) error {
	api, err := cf()
	if err != nil {
		return err
	}
	return api.DeleteDNSRecord(ctx, cfZone(), recordID)
}
