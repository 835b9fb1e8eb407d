package models

// Disk is one mounted volume as reported by the system-info provider
type Disk struct {
	Name       string `json:"name"`
	MountPoint string `json:"mount_point"`
	Filesystem string `json:"filesystem,omitempty"`
	Total      uint64 `json:"total"`
	Available  uint64 `json:"available"`
}

// Used returns total minus available, saturating at zero
func (d Disk) Used() uint64 {
	if d.Available > d.Total {
		return 0
	}
	return d.Total - d.Available
}

// UsedFraction returns used/total in [0, 1]. An empty disk reports 0.
func (d Disk) UsedFraction() float64 {
	if d.Total == 0 {
		return 0
	}
	f := float64(d.Used()) / float64(d.Total)
	if f > 1 {
		return 1
	}
	return f
}
