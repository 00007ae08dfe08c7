// Package config provides configuration management for objpool managers.
//
// # Key Features
//
// - ManagerConfig: init mode, diagnostics gate, watcher interval and the pool list
// - PoolConfig: one entry per pooled object kind, with auto-growth parameters
// - Environment variable substitution with ${VAR_NAME} syntax
// - OBJPOOL_* environment overrides for manager-level keys (via viper)
// - Defaults for omitted pool fields and range validation
//
// # Usage
//
//	cfg, err := config.Load("pools.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # File Format
//
//	init_mode: deferred
//	allow_logs: true
//	watch_interval: 1s
//	pools:
//	  - key: Bullet
//	    initial_count: 100
//	    auto_grow: true
//	    grow_threshold_percent: 25
//	    grow_coefficient: 0.5
//	    max_instances: 400
//	  - key: Spark
//	    initial_count: 20
//	    is_special_lifecycle: true
//	    max_instances: ${SPARK_MAX}
//
// Omitted pool fields default to initial_count 50, grow_threshold_percent 25,
// grow_coefficient 0.5 and max_instances 200.
package config
