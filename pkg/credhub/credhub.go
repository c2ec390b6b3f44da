// Package credhub copies credentials bound by the platform into the process
// environment so the connectors' environment lookups find them.
//
// The platform publishes bound services as JSON in VCAP_SERVICES. Every
// "credhub" binding whose "credentials" is an object has its keys exported
// upper-cased:
//
//	{"credhub": [{"credentials": {"jira_email": "a@b.com"}}]}
//
// sets JIRA_EMAIL=a@b.com.
package credhub

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// EnvServices holds the platform's service bindings.
const EnvServices = "VCAP_SERVICES"

// ServiceName is the binding whose credentials are exported.
const ServiceName = "credhub"

// Bootstrap exports the credhub credentials found in VCAP_SERVICES and
// returns the number of variables set. It never fails; malformed input is
// logged and ignored.
func Bootstrap(logger hclog.Logger) int {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	blob := os.Getenv(EnvServices)
	if strings.TrimSpace(blob) == "" {
		return 0
	}
	return Apply(blob, logger.Named("credhub"))
}

// Apply exports the credhub credentials of blob.
func Apply(blob string, logger hclog.Logger) int {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	vars, err := Extract(blob)
	if err != nil {
		logger.Warn("ignoring malformed service bindings", "error", err)
		return 0
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	set := 0
	for _, name := range names {
		if err := os.Setenv(name, vars[name]); err != nil {
			logger.Warn("could not set credential", "name", name, "error", err)
			continue
		}
		set++
	}
	logger.Debug("exported platform credentials", "names", names)
	return set
}

// Extract returns the variables Apply would set. Bindings that are not
// objects, or whose credentials are not objects, are skipped.
func Extract(blob string) (map[string]string, error) {
	var services map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &services); err != nil {
		return nil, err
	}

	vars := map[string]string{}

	raw, ok := services[ServiceName]
	if !ok {
		return vars, nil
	}
	var bindings []json.RawMessage
	if err := json.Unmarshal(raw, &bindings); err != nil {
		return vars, nil
	}

	for _, b := range bindings {
		var binding struct {
			Credentials json.RawMessage `json:"credentials"`
		}
		if err := json.Unmarshal(b, &binding); err != nil {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(binding.Credentials))
		dec.UseNumber()
		var creds map[string]any
		if err := dec.Decode(&creds); err != nil || creds == nil {
			continue
		}

		for key, value := range creds {
			if s, ok := format(value); ok {
				vars[strings.ToUpper(key)] = s
			}
		}
	}
	return vars, nil
}

// format renders a credential value. Nulls are skipped.
func format(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		out, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}
