package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// ValidateItemFieldsTool handles jama_validate_item_fields.
type ValidateItemFieldsTool struct {
	api jama.API
}

func NewValidateItemFieldsTool(api jama.API) *ValidateItemFieldsTool {
	return &ValidateItemFieldsTool{api: api}
}

func (t *ValidateItemFieldsTool) Definition() mcp.Tool {
	return mcp.NewTool("jama_validate_item_fields",
		mcp.WithDescription(
			"Check a field payload against an item type's schema before "+
				"creating or updating. Reports missing required fields and bad "+
				"pick list values as errors, unknown fields as warnings.",
		),
		mcp.WithNumber("item_type_id",
			mcp.Required(),
			mcp.Description("Item type the fields are meant for"),
		),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description("Fields to validate as a JSON object"),
		),
	)
}

// fieldIssue is one validation finding tied to a field name.
type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (t *ValidateItemFieldsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID := intArg(req, "item_type_id", 0)
	if typeID <= 0 {
		return mcp.NewToolResultError("'item_type_id' is required"), nil
	}
	fields, err := fieldsArg(req, "fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	itemType, err := t.api.GetItemType(ctx, typeID)
	if err != nil {
		return apiResult(err)
	}
	schema := make(map[string]jama.ItemTypeField, len(itemType.Fields))
	for _, f := range itemType.Fields {
		schema[f.Name] = f
	}

	issues := []fieldIssue{}
	warnings := []fieldIssue{}

	if name, _ := fields["name"].(string); strings.TrimSpace(name) == "" {
		issues = append(issues, fieldIssue{
			Field:   "name",
			Message: "field 'name' is required",
		})
	}
	for _, f := range itemType.Fields {
		if !f.Required || f.Name == "name" {
			continue
		}
		if _, ok := fields[f.Name]; !ok {
			issues = append(issues, fieldIssue{
				Field:   f.Name,
				Message: fmt.Sprintf("field '%s' is required", f.Name),
			})
		}
	}

	// Option IDs per pick list, fetched once even when several fields
	// share a list.
	optionsByList := map[int]map[int]bool{}
	for name, value := range fields {
		if name == "name" || name == "description" {
			continue
		}
		def, ok := schema[name]
		if !ok {
			warnings = append(warnings, fieldIssue{
				Field:   name,
				Message: fmt.Sprintf("field '%s' is not defined on item type %d", name, typeID),
			})
			continue
		}
		if def.PickList == 0 {
			continue
		}

		valid, ok := optionsByList[def.PickList]
		if !ok {
			options, err := t.api.GetPickListOptions(ctx, def.PickList)
			if err != nil {
				return apiResult(err)
			}
			valid = make(map[int]bool, len(options))
			for _, opt := range options {
				valid[opt.ID] = true
			}
			optionsByList[def.PickList] = valid
		}

		optionID, isNumber := value.(float64)
		if !isNumber || !valid[int(optionID)] {
			issues = append(issues, fieldIssue{
				Field: name,
				Message: fmt.Sprintf("value %v is not an option ID in pick list %d",
					value, def.PickList),
			})
		}
	}

	return jsonResult(map[string]any{
		"valid":    len(issues) == 0,
		"errors":   issues,
		"warnings": warnings,
	})
}
