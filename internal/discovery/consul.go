package discovery

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type agent interface {
	ServiceRegister(reg *consulapi.AgentServiceRegistration) error
	ServiceDeregister(serviceID string) error
}

// Registration announces this instance to Consul with an HTTP health check on
// /healthz.
type Registration struct {
	agent  agent
	id     string
	logger *zap.Logger
}

func Register(addr, name, host string, port int, instanceID string, logger *zap.Logger) (*Registration, error) {
	consulCfg := consulapi.DefaultConfig()
	consulCfg.Address = addr
	client, err := consulapi.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return register(client.Agent(), name, host, port, instanceID, logger)
}

func register(a agent, name, host string, port int, instanceID string, logger *zap.Logger) (*Registration, error) {
	id := fmt.Sprintf("%s-%s", name, instanceID)
	reg := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: host,
		Port:    port,
		Tags:    []string{"http", "ws"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := a.ServiceRegister(reg); err != nil {
		return nil, fmt.Errorf("consul register: %w", err)
	}
	logger.Info("registered with consul", zap.String("service_id", id))
	return &Registration{agent: a, id: id, logger: logger}, nil
}

func (r *Registration) Deregister() error {
	if err := r.agent.ServiceDeregister(r.id); err != nil {
		return fmt.Errorf("consul deregister: %w", err)
	}
	r.logger.Info("deregistered from consul", zap.String("service_id", r.id))
	return nil
}
