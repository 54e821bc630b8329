// Package netif находит MAC адрес и имя хоста для login пакета.
package netif

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// UnknownHost подставляется если имя хоста недоступно.
const UnknownHost = "unknown"

var (
	// ErrInterfaceNotFound: интерфейс с таким именем отсутствует.
	ErrInterfaceNotFound = errors.New("interface not found")

	// ErrMissingField: у интерфейса нет нужного поля (например MAC).
	ErrMissingField = errors.New("missing interface field")
)

// interfaces подменяется в тестах.
var interfaces = net.Interfaces

// MAC возвращает 6-байтовый MAC интерфейса name.
func MAC(name string) ([6]byte, error) {
	var mac [6]byte

	ifaces, err := interfaces()
	if err != nil {
		return mac, fmt.Errorf("list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Name != name {
			continue
		}
		if len(iface.HardwareAddr) != len(mac) {
			return mac, fmt.Errorf("%w: %s: mac", ErrMissingField, name)
		}
		copy(mac[:], iface.HardwareAddr)
		return mac, nil
	}

	return mac, fmt.Errorf("%w: %q", ErrInterfaceNotFound, name)
}

// DefaultInterface возвращает первый поднятый не-loopback интерфейс с MAC адресом.
func DefaultInterface() (string, error) {
	ifaces, err := interfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagRunning == 0 {
			continue
		}
		if len(iface.HardwareAddr) != 6 {
			continue
		}
		return iface.Name, nil
	}

	return "", fmt.Errorf("%w: no usable interface", ErrInterfaceNotFound)
}

// HostName возвращает имя хоста или UnknownHost.
func HostName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return UnknownHost
	}
	return name
}

// Resolver возвращает функцию, читающую MAC интерфейса name при каждом вызове.
// Пустое name означает DefaultInterface.
func Resolver(name string) func() ([6]byte, error) {
	return func() ([6]byte, error) {
		iface := name
		if iface == "" {
			var err error
			if iface, err = DefaultInterface(); err != nil {
				return [6]byte{}, err
			}
		}
		return MAC(iface)
	}
}
