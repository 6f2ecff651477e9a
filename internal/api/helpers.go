package api

import (
	"net"
	"strconv"

	"github.com/easycomment/easycomment-server/internal/domain"
)

func formatRealtime(clients, rooms int) string {
	return strconv.Itoa(clients) + " clients in " + strconv.Itoa(rooms) + " rooms"
}

// emptyIfNil keeps list responses encoded as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// publicInstance hides the admin password from unauthenticated readers.
func publicInstance(instance *domain.Instance) *domain.Instance {
	out := *instance
	out.AdminPassword = nil
	return &out
}

// clientHost strips the port from a remote address.
func clientHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
