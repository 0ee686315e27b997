package handlers

import (
	"strings"

	"fabric/domain"
	"fabric/service"
)

// fromRegistrationRequest trims and checks the registration fields.
func fromRegistrationRequest(req RegistrationRequest) (serviceName, address string, err error) {
	serviceName = strings.TrimSpace(req.ServiceName)
	address = strings.TrimSpace(req.Address)
	if serviceName == "" || address == "" {
		return "", "", service.NewBadParameterError("Service name and address are required", nil)
	}
	return serviceName, address, nil
}

func toInstancesResponse(instances []domain.ServiceInstance) []InstanceResponse {
	out := make([]InstanceResponse, 0, len(instances))
	for _, i := range instances {
		out = append(out, InstanceResponse{InstanceId: i.InstanceID, Address: i.Address})
	}
	return out
}
