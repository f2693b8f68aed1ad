package domain

// InstanceGroup is the machine type and size of a group of cluster nodes.
type InstanceGroup struct {
	MachineType string
	Instances   int
}

// Cluster is a provider-neutral description of a managed Spark cluster.
type Cluster struct {
	ID         string
	Name       string
	Provider   string
	Zone       string
	State      string
	Worker     InstanceGroup
	Properties PropertyMap
	Raw        []byte // provider's own JSON rendering, archived verbatim
}

// MachineType is the hardware behind a machine type name.
type MachineType struct {
	Name     string
	VCPUs    int
	MemoryMB int
}
