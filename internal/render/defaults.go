package render

const (
	// DefaultNginxConfig is the proxy config rendered inside the front-end image.
	DefaultNginxConfig = "/etc/nginx/nginx.conf"
	// DefaultIndexFile is the single-page app markup.
	DefaultIndexFile = "/var/www/index.htm"
	// DefaultManifestFile is the web app manifest.
	DefaultManifestFile = "/var/www/manifest.json"
)

// DefaultTargets returns a fresh copy of the built-in placeholder map for the
// reverse-proxy front end.
func DefaultTargets() []Target {
	return []Target{
		{
			Path: DefaultNginxConfig,
			Placeholders: []Placeholder{
				Required("__BACKEND__", "BACKEND_HOST"),
				WithDefault("__LISTEN_PORT__", "PORT", "80"),
				WithDefault("__BACKEND_PORT__", "BACKEND_PORT", "6666"),
			},
		},
		{Path: DefaultIndexFile, Placeholders: []Placeholder{baseURL()}},
		{Path: DefaultManifestFile, Placeholders: []Placeholder{baseURL()}},
	}
}

func baseURL() Placeholder {
	return WithDefault("__BASEURL__", "BASE_URL", "/")
}
