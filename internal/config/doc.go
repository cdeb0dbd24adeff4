// Package config loads the access control engine configuration.
//
// Configuration comes from an optional YAML (or JSON/TOML) file, OBA_ACI_*
// environment variables and built-in defaults, in that order of increasing
// precedence for the environment:
//
//	logging:
//	  level: info
//	  format: json
//	  output: stdout
//	acl:
//	  global_acis:
//	    - '(targetattr="*")(version 3.0; acl "anon read"; allow (read,search,compare) userdn="ldap:///anyone";)'
//	  bootstrap_file: /etc/oba-aci/acis.yaml
//	  watch_bootstrap: true
//	  watch_debounce: 250ms
//	  modify_dn_lock_retries: 3
//	metrics:
//	  enabled: true
//	  namespace: oba_aci
//
// Load the file with:
//
//	cfg, err := config.Load("/etc/oba-aci/config.yaml")
//
// ${VAR} and ${VAR:-default} references inside the file are expanded before
// parsing. Environment keys replace dots with underscores, so
// OBA_ACI_LOGGING_LEVEL=debug overrides logging.level. A single
// OBA_ACI_ACL_GLOBAL_ACIS value holds one ACI per line.
//
// Validation uses struct tags; Validate reports one ValidationError per
// failing key.
package config
