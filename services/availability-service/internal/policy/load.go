package policy

import (
	"encoding/json"
	"fmt"
)

// FileConfig is the JSON shape of the policy file:
//
//	{
//	  "defaults": {"timezone": "America/New_York", "day_start_hour": 8},
//	  "clinicians": {
//	    "dr-lee": {"day_end_hour": 16},
//	    "dr-osei": {"timezone": "Europe/London", "allow_weekends": true}
//	  }
//	}
type FileConfig struct {
	Defaults   *Overrides           `json:"defaults,omitempty"`
	Clinicians map[string]Overrides `json:"clinicians"`
}

// FromJSON parses a policy file into resolved defaults plus per-clinician
// overrides. The defaults block itself is an override set applied on top of
// the system defaults.
func FromJSON(data []byte) (Policy, map[string]Overrides, error) {
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Policy{}, nil, fmt.Errorf("parse policy config: %w", err)
	}
	base := Default()
	if cfg.Defaults != nil {
		base = cfg.Defaults.Apply(base)
	}
	if len(cfg.Clinicians) == 0 {
		return Policy{}, nil, fmt.Errorf("policy config lists no clinicians")
	}
	return base, cfg.Clinicians, nil
}
