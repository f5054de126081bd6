package archives

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// Descriptor describes one archive service: where it lives and how the CLI
// refers to it. A service carries whichever endpoints its protocols need;
// at least one must be set.
type Descriptor struct {
	Name        string
	Description string
	TAPURL      string   // TAP base URL, without the /sync suffix
	SCSURL      string   // cone search access URL, may carry fixed parameters
	BaseURL     string   // root for services with bespoke APIs
	Aliases     []string
}

var serviceNameRE = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Validate checks the descriptor is well formed.
func (d Descriptor) Validate() error {
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Match(serviceNameRE).Error("must be lowercase letters, digits, or dashes")),
		validation.Field(&d.TAPURL, is.URL),
		validation.Field(&d.SCSURL, is.URL),
		validation.Field(&d.BaseURL, is.URL),
	); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidService, err, "invalid service %q", d.Name)
	}
	if d.TAPURL == "" && d.SCSURL == "" && d.BaseURL == "" {
		return errors.New(errors.ErrCodeInvalidService, "service %q has no endpoints", d.Name)
	}
	return nil
}

// builtins returns the services known out of the box, in display order.
func builtins() []Descriptor {
	return []Descriptor{
		{
			Name:        "sesame",
			Description: "CDS Sesame name resolver (SIMBAD, NED, VizieR)",
			BaseURL:     "https://cds.unistra.fr/cgi-bin/nph-sesame",
		},
		{
			Name:        "simbad",
			Description: "SIMBAD astronomical database (CDS)",
			TAPURL:      "https://simbad.cds.unistra.fr/simbad/sim-tap",
		},
		{
			Name:        "vizier",
			Description: "VizieR catalogue service (CDS)",
			TAPURL:      "https://tapvizier.cds.unistra.fr/TAPVizieR/tap",
			Aliases:     []string{"viz"},
		},
		{
			Name:        "gaia",
			Description: "ESA Gaia archive",
			TAPURL:      "https://gea.esac.esa.int/tap-server/tap",
		},
		{
			Name:        "irsa",
			Description: "NASA/IPAC Infrared Science Archive",
			TAPURL:      "https://irsa.ipac.caltech.edu/TAP",
		},
		{
			Name:        "ned",
			Description: "NASA/IPAC Extragalactic Database",
			BaseURL:     "https://ned.ipac.caltech.edu/cgi-bin",
			SCSURL:      "https://ned.ipac.caltech.edu/cgi-bin/NEDobjsearch?search_type=Near+Position+Search&of=xml_main&",
		},
		{
			Name:        "mast",
			Description: "Mikulski Archive for Space Telescopes (STScI)",
			BaseURL:     "https://mast.stsci.edu",
		},
		{
			Name:        "ads",
			Description: "NASA Astrophysics Data System",
			BaseURL:     "https://api.adsabs.harvard.edu",
			Aliases:     []string{"adsabs"},
		},
		{
			Name:        "heasarc",
			Description: "High Energy Astrophysics Science Archive (NASA GSFC)",
			TAPURL:      "https://heasarc.gsfc.nasa.gov/xamin/vo/tap",
		},
	}
}

// Registry maps service names and aliases to descriptors.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*Descriptor
	order    []string
}

// NewRegistry returns a registry seeded with the built-in services.
func NewRegistry() *Registry {
	r := &Registry{services: make(map[string]*Descriptor)}
	for _, d := range builtins() {
		d := d
		r.services[d.Name] = &d
		r.order = append(r.order, d.Name)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Lookup finds a service by name or alias, ignoring case.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	key := normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.services[key]; ok {
		return *d, nil
	}
	for _, d := range r.services {
		for _, alias := range d.Aliases {
			if normalize(alias) == key {
				return *d, nil
			}
		}
	}
	return Descriptor{}, errors.New(errors.ErrCodeServiceNotFound,
		"unknown service %q (known: %s)", name, strings.Join(r.namesLocked(), ", "))
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.services[name])
	}
	return out
}

// Names returns the sorted service names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a new service or replaces an existing one wholesale.
func (r *Registry) Register(d Descriptor) error {
	d.Name = normalize(d.Name)
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.services[d.Name] = &d
	return nil
}

// Override adjusts fields of a registered service, or registers a new one.
// Empty fields leave the existing values untouched, so configuration can
// override a single endpoint without restating the rest.
type Override struct {
	Description string
	TAPURL      string
	SCSURL      string
	BaseURL     string
	Aliases     []string
}

// Apply merges an override into the registry under the given name.
func (r *Registry) Apply(name string, o Override) error {
	key := normalize(name)

	r.mu.RLock()
	existing, ok := r.services[key]
	var d Descriptor
	if ok {
		d = *existing
	} else {
		d = Descriptor{Name: key}
	}
	r.mu.RUnlock()

	if o.Description != "" {
		d.Description = o.Description
	}
	if o.TAPURL != "" {
		d.TAPURL = o.TAPURL
	}
	if o.SCSURL != "" {
		d.SCSURL = o.SCSURL
	}
	if o.BaseURL != "" {
		d.BaseURL = o.BaseURL
	}
	if len(o.Aliases) > 0 {
		d.Aliases = append([]string{}, o.Aliases...)
	}
	return r.Register(d)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
