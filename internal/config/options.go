package config

// Options are CLI-supplied overrides. Nil fields were not given on the
// command line and leave the merged value alone; Options always win over the
// config file, which wins over builtin defaults.
type Options struct {
	Src       *string
	Dst       *string
	Title     *string
	BaseURL   *string
	FQDN      *string
	Watch     *bool
	Port      *int
	Open      *bool
	JSON      *bool
	Static    *bool
	Publish   *bool
	GithubURL *string
	Domain    *string
	Generator *string

	// Extra passes through additional key/value options untouched.
	Extra map[string]any
}

// Apply overlays the set fields of opts onto cfg.
func (o Options) Apply(cfg *Config) {
	setString(&cfg.Src, o.Src)
	setString(&cfg.Dst, o.Dst)
	setString(&cfg.Title, o.Title)
	setString(&cfg.BaseURL, o.BaseURL)
	setString(&cfg.FQDN, o.FQDN)
	setBool(&cfg.Watch, o.Watch)
	setInt(&cfg.Port, o.Port)
	setBool(&cfg.Open, o.Open)
	setBool(&cfg.JSON, o.JSON)
	setBool(&cfg.Static, o.Static)
	setBool(&cfg.Publish, o.Publish)
	setString(&cfg.GithubURL, o.GithubURL)
	setString(&cfg.Domain, o.Domain)
	setString(&cfg.Generator, o.Generator)

	if len(o.Extra) > 0 {
		if cfg.Extra == nil {
			cfg.Extra = make(map[string]any, len(o.Extra))
		}
		for k, v := range o.Extra {
			cfg.Extra[k] = v
		}
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
