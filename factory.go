package vfskit

import (
	"fmt"
	"sync"
)

// DriverFactory is a function that creates a Backend from a config
type DriverFactory func(cfg *Config) (Backend, error)

var (
	driverFactories = make(map[string]DriverFactory)
	factoryMutex    sync.RWMutex
)

// RegisterDriver registers a driver factory function
func RegisterDriver(scheme string, factory DriverFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	driverFactories[scheme] = factory
}

// CreateDriver creates a backend instance for a scheme from config
func CreateDriver(scheme string, cfg *Config) (Backend, error) {
	factoryMutex.RLock()
	factory, exists := driverFactories[scheme]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("driver %s not registered", scheme)
	}

	return factory(cfg)
}
