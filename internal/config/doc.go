// Package config provides configuration loading for rendertree tools.
//
// Configuration lives in rendertree.json, rendertree.yaml or rendertree.toml
// at the project root. The format is chosen by file extension.
//
// # Configuration File Structure
//
//	{
//	  "builder": {
//	    "initialCapacity": 256,
//	    "keepFalseAttributes": false
//	  },
//	  "layout": {
//	    "maxFrames": 1048576,
//	    "maxStringBytes": 16777216
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "rendertree"
//	  },
//	  "serve": {
//	    "addr": "localhost:7070"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Max frames:", cfg.Layout.MaxFrames)
package config
