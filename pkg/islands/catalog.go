package islands

// Config configures the islands built by a Catalog.
type Config struct {
	// GeneratorURL is the import map generator base URL.
	GeneratorURL string
}

// Catalog builds fresh island instances. Islands hold per-mount props, so
// every connection needs its own set.
type Catalog struct {
	cfg Config
}

// NewCatalog creates a catalog.
func NewCatalog(cfg Config) *Catalog {
	if cfg.GeneratorURL == "" {
		cfg.GeneratorURL = DefaultGeneratorURL
	}
	return &Catalog{cfg: cfg}
}

// Config returns the catalog configuration.
func (c *Catalog) Config() Config {
	return c.cfg
}

// New returns a new island for tag.
func (c *Catalog) New(tag string) (Island, bool) {
	switch tag {
	case TagImportmapToggle:
		return &ImportmapToggle{}, true
	case TagImportmapDialog:
		return &ImportmapDialog{GeneratorBase: c.cfg.GeneratorURL}, true
	case TagPackageExports:
		return &PackageExports{}, true
	case TagGeneratorLink:
		return &GeneratorLink{Base: c.cfg.GeneratorURL}, true
	case TagVersionSelector:
		return &VersionSelector{}, true
	case TagSandboxLink:
		return &SandboxLink{GeneratorBase: c.cfg.GeneratorURL}, true
	}
	return nil, false
}

// Tags lists every known island tag.
func (c *Catalog) Tags() []string {
	return []string{
		TagImportmapToggle,
		TagImportmapDialog,
		TagPackageExports,
		TagGeneratorLink,
		TagVersionSelector,
		TagSandboxLink,
	}
}

// All returns one new instance of every island.
func (c *Catalog) All() []Island {
	tags := c.Tags()
	out := make([]Island, 0, len(tags))
	for _, tag := range tags {
		island, _ := c.New(tag)
		out = append(out, island)
	}
	return out
}
