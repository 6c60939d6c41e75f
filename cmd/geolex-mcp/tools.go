package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createEvaluateFeatureTool returns the evaluate_feature tool definition
func createEvaluateFeatureTool() mcp.Tool {
	return mcp.NewTool("evaluate_feature",
		mcp.WithDescription("Evaluate a feature's collected compliance evidence against the rule catalog"),
		mcp.WithString("feature_id",
			mcp.Required(),
			mcp.Description("Feature ID whose evidence document lives in the artifacts directory"),
		),
	)
}

// createExplainFeatureTool returns the explain_feature tool definition
func createExplainFeatureTool() mcp.Tool {
	return mcp.NewTool("explain_feature",
		mcp.WithDescription("Evaluate a feature and synthesize its explainable compliance record"),
		mcp.WithString("feature_id",
			mcp.Required(),
			mcp.Description("Feature ID whose evidence document lives in the artifacts directory"),
		),
	)
}

// createListRulesTool returns the list_rules tool definition
func createListRulesTool() mcp.Tool {
	return mcp.NewTool("list_rules",
		mcp.WithDescription("List the compliance rules in the catalog with severity and enabled state"),
		mcp.WithBoolean("enabled_only",
			mcp.Description("Only list enabled rules (default: false)"),
		),
	)
}

// createGetRecordTool returns the get_record tool definition
func createGetRecordTool() mcp.Tool {
	return mcp.NewTool("get_record",
		mcp.WithDescription("Retrieve the archived compliance record for a feature"),
		mcp.WithString("feature_id",
			mcp.Required(),
			mcp.Description("Feature ID of the archived record"),
		),
	)
}
