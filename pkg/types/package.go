package types

// PackageStatus distinguishes packages the user asked for from packages
// pulled in as dependencies.
type PackageStatus string

const (
	StatusManual PackageStatus = "manual"
	StatusAuto   PackageStatus = "auto"
)

// ScannedPackage is one installed package as reported by a Scanner.
type ScannedPackage struct {
	Name        string        `json:"name"`
	Source      Source        `json:"source"`
	Version     string        `json:"version"`
	Status      PackageStatus `json:"status"`
	Description string        `json:"description,omitempty"`
	SizeBytes   int64         `json:"size_bytes,omitempty"`
}

// IsManual reports whether the package was installed by the user rather
// than as an automatic dependency.
func (p ScannedPackage) IsManual() bool {
	return p.Status == StatusManual
}
