package api

func NewDemoFlag(enabled bool) *DemoFlag {
	d := &DemoFlag{}
	d.enabled.Store(enabled)
	return d
}

// DemoEnabled implements session.DemoToggle.
func (d *DemoFlag) DemoEnabled() bool {
	return d.enabled.Load()
}

func (d *DemoFlag) Set(enabled bool) {
	d.enabled.Store(enabled)
}
