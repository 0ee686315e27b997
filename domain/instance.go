package domain

// ServiceInstance is one registered instance of a logical service.
// InstanceID is unique per registration; Address is host:port, optionally with a scheme.
type ServiceInstance struct {
	ServiceName string
	InstanceID  string
	Address     string
}
