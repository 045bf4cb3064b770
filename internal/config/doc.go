// Package config loads evalboard configuration.
//
// Configuration lives in evalboard.json or evalboard.toml, or in an S3
// object addressed as s3://bucket/key. Every field has a default, so an
// empty file serves the stock dashboard.
//
// # Configuration File Structure
//
//	{
//	  "name": "evalboard",
//	  "mode": "development",
//	  "logFormat": "json",
//	  "server": {"addr": ":8080"},
//	  "navigation": {"redirectLimit": 10, "guardTimeout": "2s"},
//	  "metrics": {"enabled": true, "namespace": "evalboard"},
//	  "tracing": {"enabled": false},
//	  "routes": [
//	    {"path": "/", "layout": "Layout", "children": [
//	      {"path": "", "redirect": "/accuracy"},
//	      {"path": "/accuracy", "name": "AccuracyAnalysis", "view": "AccuracyAnalysis"},
//	      {"path": "/performance", "view": "SystemPerformance"}
//	    ]}
//	  ]
//	}
//
// # Usage
//
//	cfg, err := config.LoadSource(ctx, "evalboard.json", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ResolveMode(os.Getenv)
//	table, err := cfg.BuildTable(registry)
package config
