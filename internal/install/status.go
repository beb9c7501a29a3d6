package install

import (
	"github.com/Masterminds/semver/v3"
)

// Status describes the current install.
type Status struct {
	Target     string
	Installed  bool
	Configured string   // version the configuration asks for
	Receipt    *Receipt // nil when no receipt exists

	// Stale is true when the receipt records a version other than the
	// configured one. Installs of unknown version are never stale.
	Stale bool

	// Modified is true when the target's checksum no longer matches the
	// receipt. Only release installs record a checksum.
	Modified bool
}

// Status reports the install state without changing anything.
func (i *Installer) Status() (*Status, error) {
	s := &Status{
		Target:     i.Target(),
		Installed:  i.Installed(),
		Configured: i.cfg.Version,
	}

	r, err := ReadReceipt(i.cfg.ReceiptFile)
	if err != nil {
		return nil, err
	}
	s.Receipt = r
	if r == nil || !s.Installed {
		return s, nil
	}

	if r.Version != "" {
		s.Stale = isStaleVersion(r.Version, i.cfg.Version)
	}
	if r.SHA256 != "" {
		if sum, err := ComputeFileChecksum(s.Target); err == nil && sum != r.SHA256 {
			s.Modified = true
		}
	}
	return s, nil
}

// isStaleVersion compares semantically so "1.10.2" and "v1.10.2" match.
// Unparseable versions are compared as strings.
func isStaleVersion(installed, configured string) bool {
	a, errA := semver.NewVersion(installed)
	b, errB := semver.NewVersion(configured)
	if errA != nil || errB != nil {
		return installed != configured
	}
	return !a.Equal(b)
}
