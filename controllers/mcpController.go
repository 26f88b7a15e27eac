package controllers

import (
	"encoding/json"
	"time"

	"controlplane-backend/database"
	"controlplane-backend/middlewares"
	"controlplane-backend/models"
	"controlplane-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// The MCP façade re-exposes control-plane operations as tools over a
// JSON-RPC 2.0 subset (initialize, tools/list, tools/call), so AI agents
// holding an API key can drive the platform.

const mcpProtocolVersion = "2024-11-05"

type mcpRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type mcpToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type mcpTool struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	InputSchema fiber.Map `json:"inputSchema"`
	handler     func(c *fiber.Ctx, auth *middlewares.AuthContext, args json.RawMessage) (any, error)
}

func mcpResult(c *fiber.Ctx, id, result any) error {
	return c.JSON(fiber.Map{"jsonrpc": "2.0", "id": id, "result": result})
}

func mcpError(c *fiber.Ctx, id any, code int, message string) error {
	return c.JSON(fiber.Map{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   fiber.Map{"code": code, "message": message},
	})
}

var mcpTools = []mcpTool{
	{
		Name:        "get_tenant",
		Description: "Return the tenant this credential operates as, including its plan.",
		InputSchema: fiber.Map{"type": "object", "properties": fiber.Map{}},
		handler: func(_ *fiber.Ctx, auth *middlewares.AuthContext, _ json.RawMessage) (any, error) {
			return auth.Tenant, nil
		},
	},
	{
		Name:        "get_subscription",
		Description: "Return the tenant's billing subscription state.",
		InputSchema: fiber.Map{"type": "object", "properties": fiber.Map{}},
		handler: func(_ *fiber.Ctx, auth *middlewares.AuthContext, _ json.RawMessage) (any, error) {
			var sub models.Subscription
			if err := database.DB.Where("tenant_id = ?", auth.Tenant.Id).First(&sub).Error; err != nil {
				return fiber.Map{"plan": "free", "status": "none"}, nil
			}
			return sub, nil
		},
	},
	{
		Name:        "list_services",
		Description: "List active services from the platform catalog.",
		InputSchema: fiber.Map{
			"type": "object",
			"properties": fiber.Map{
				"category": fiber.Map{"type": "string", "description": "Optional category filter"},
			},
		},
		handler: func(_ *fiber.Ctx, _ *middlewares.AuthContext, args json.RawMessage) (any, error) {
			var input struct {
				Category string `json:"category"`
			}
			if len(args) > 0 {
				_ = json.Unmarshal(args, &input)
			}
			q := database.DB.Where("status = ?", models.ServiceStatusActive)
			if input.Category != "" {
				q = q.Where("category = ?", input.Category)
			}
			var services []models.Service
			if err := q.Order("name").Find(&services).Error; err != nil {
				return nil, err
			}
			return services, nil
		},
	},
	{
		Name:        "list_deployments",
		Description: "List the tenant's most recent page deployments.",
		InputSchema: fiber.Map{"type": "object", "properties": fiber.Map{}},
		handler: func(_ *fiber.Ctx, auth *middlewares.AuthContext, _ json.RawMessage) (any, error) {
			var deployments []models.Deployment
			err := database.DB.Where("tenant_id = ?", auth.Tenant.Id).
				Order("created_at DESC").Limit(20).Find(&deployments).Error
			return deployments, err
		},
	},
	{
		Name:        "list_secret_names",
		Description: "List the names of the tenant's stored secrets (values are never returned).",
		InputSchema: fiber.Map{"type": "object", "properties": fiber.Map{}},
		handler: func(_ *fiber.Ctx, auth *middlewares.AuthContext, _ json.RawMessage) (any, error) {
			var secrets []models.Secret
			if err := database.DB.Where("tenant_id = ?", auth.Tenant.Id).
				Order("name").Find(&secrets).Error; err != nil {
				return nil, err
			}
			names := make([]string, 0, len(secrets))
			for _, s := range secrets {
				names = append(names, s.Name)
			}
			return names, nil
		},
	},
	{
		Name:        "create_api_key",
		Description: "Issue a new API key for the tenant. The raw key is returned exactly once.",
		InputSchema: fiber.Map{
			"type":     "object",
			"required": []string{"name"},
			"properties": fiber.Map{
				"name":   fiber.Map{"type": "string"},
				"scopes": fiber.Map{"type": "array", "items": fiber.Map{"type": "string"}},
			},
		},
		handler: func(_ *fiber.Ctx, auth *middlewares.AuthContext, args json.RawMessage) (any, error) {
			var input struct {
				Name   string   `json:"name"`
				Scopes []string `json:"scopes"`
			}
			if err := json.Unmarshal(args, &input); err != nil || input.Name == "" {
				return nil, fiber.NewError(fiber.StatusBadRequest, "name is required")
			}
			raw, prefix, hash, err := utils.GenerateAPIKey()
			if err != nil {
				return nil, err
			}
			scopes := input.Scopes
			if len(scopes) == 0 {
				scopes = []string{"*"}
			}
			scopesJSON, _ := json.Marshal(scopes)
			key := models.APIKey{
				TenantId:  auth.Tenant.Id,
				Name:      input.Name,
				KeyHash:   hash,
				KeyPrefix: prefix,
				Scopes:    scopesJSON,
				IsActive:  true,
			}
			if err := database.DB.Create(&key).Error; err != nil {
				return nil, err
			}
			LogActivity(auth.Tenant.Id, "mcp", "api_key.created", fiber.Map{"name": key.Name})
			return fiber.Map{"api_key": raw, "key_prefix": prefix, "id": key.Id}, nil
		},
	},
	{
		Name:        "log_activity",
		Description: "Append a custom entry to the tenant's activity log.",
		InputSchema: fiber.Map{
			"type":     "object",
			"required": []string{"action"},
			"properties": fiber.Map{
				"action": fiber.Map{"type": "string"},
			},
		},
		handler: func(_ *fiber.Ctx, auth *middlewares.AuthContext, args json.RawMessage) (any, error) {
			var input struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(args, &input); err != nil || input.Action == "" {
				return nil, fiber.NewError(fiber.StatusBadRequest, "action is required")
			}
			err := database.DB.Create(&models.Activity{
				TenantId: auth.Tenant.Id,
				UserId:   "mcp",
				Action:   input.Action,
			}).Error
			if err != nil {
				return nil, err
			}
			return fiber.Map{"logged_at": time.Now().UTC()}, nil
		},
	},
}

// HandleMCP serves the JSON-RPC endpoint. Requires a tenant-resolving
// credential (API key or bearer with default tenant).
func HandleMCP(c *fiber.Ctx) error {
	var req mcpRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return mcpError(c, nil, -32700, "Parse error")
	}
	auth := middlewares.Auth(c)

	switch req.Method {
	case "initialize":
		return mcpResult(c, req.Id, fiber.Map{
			"protocolVersion": mcpProtocolVersion,
			"capabilities":    fiber.Map{"tools": fiber.Map{}},
			"serverInfo":      fiber.Map{"name": "controlplane-backend", "version": "1.0.0"},
		})

	case "tools/list":
		tools := make([]fiber.Map, 0, len(mcpTools))
		for _, t := range mcpTools {
			tools = append(tools, fiber.Map{
				"name":        t.Name,
				"description": t.Description,
				"inputSchema": t.InputSchema,
			})
		}
		return mcpResult(c, req.Id, fiber.Map{"tools": tools})

	case "tools/call":
		var call mcpToolCall
		if err := json.Unmarshal(req.Params, &call); err != nil {
			return mcpError(c, req.Id, -32602, "Invalid params")
		}
		for _, t := range mcpTools {
			if t.Name != call.Name {
				continue
			}
			out, err := t.handler(c, auth, call.Arguments)
			if err != nil {
				return mcpError(c, req.Id, -32000, err.Error())
			}
			text, _ := json.Marshal(out)
			return mcpResult(c, req.Id, fiber.Map{
				"content": []fiber.Map{{"type": "text", "text": string(text)}},
			})
		}
		return mcpError(c, req.Id, -32602, "Unknown tool: "+call.Name)
	}

	return mcpError(c, req.Id, -32601, "Method not found")
}
