package device

// Cache is the scheduler-owned set of known devices keyed by serial.
// Iteration follows manifest order.
type Cache struct {
	devices map[string]*Device
	order   []string
}

// SyncResult reports how a manifest changed the cache.
type SyncResult struct {
	Added   []string
	Updated []string
	Removed []string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{devices: make(map[string]*Device)}
}

// Sync reconciles the cache with a manifest snapshot.
//
// New serials are added unresolved. Existing entries keep their cached IP
// unless the product type changed. Serials absent from the manifest are
// dropped. A serial repeated within the manifest is only taken once.
func (c *Cache) Sync(manifest []Descriptor, classify Classifier) SyncResult {
	var res SyncResult
	seen := make(map[string]struct{}, len(manifest))
	order := make([]string, 0, len(manifest))

	for _, d := range manifest {
		if d.Serial == "" {
			continue
		}
		if _, dup := seen[d.Serial]; dup {
			continue
		}
		seen[d.Serial] = struct{}{}
		order = append(order, d.Serial)

		gen := classify.Generation(d.ProductType)
		existing, ok := c.devices[d.Serial]
		if !ok {
			c.devices[d.Serial] = &Device{
				Serial:           d.Serial,
				Name:             d.Name,
				ProductType:      d.ProductType,
				Generation:       gen,
				LocalCredentials: d.LocalCredentials,
			}
			res.Added = append(res.Added, d.Serial)
			continue
		}

		if existing.Name == d.Name && existing.ProductType == d.ProductType &&
			existing.LocalCredentials == d.LocalCredentials && existing.Generation == gen {
			continue
		}
		if existing.ProductType != d.ProductType {
			existing.IP = ""
		}
		existing.Name = d.Name
		existing.ProductType = d.ProductType
		existing.Generation = gen
		existing.LocalCredentials = d.LocalCredentials
		res.Updated = append(res.Updated, d.Serial)
	}

	for _, serial := range c.order {
		if _, ok := seen[serial]; !ok {
			delete(c.devices, serial)
			res.Removed = append(res.Removed, serial)
		}
	}
	c.order = order

	return res
}

// Get returns the device for serial.
func (c *Cache) Get(serial string) (*Device, bool) {
	d, ok := c.devices[serial]
	return d, ok
}

// Devices returns the cached devices in manifest order.
func (c *Cache) Devices() []*Device {
	out := make([]*Device, 0, len(c.order))
	for _, serial := range c.order {
		out = append(out, c.devices[serial])
	}
	return out
}

// Len returns the number of cached devices.
func (c *Cache) Len() int { return len(c.order) }

// SetIP records a resolved address. Unknown serials are ignored.
func (c *Cache) SetIP(serial, ip string) {
	if d, ok := c.devices[serial]; ok {
		d.IP = ip
	}
}

// ClearIP forgets a cached address so the next pass rediscovers it.
func (c *Cache) ClearIP(serial string) {
	if d, ok := c.devices[serial]; ok {
		d.IP = ""
	}
}

// Unresolved returns the serials that have no cached address.
func (c *Cache) Unresolved() []string {
	var out []string
	for _, serial := range c.order {
		if !c.devices[serial].Resolved() {
			out = append(out, serial)
		}
	}
	return out
}
