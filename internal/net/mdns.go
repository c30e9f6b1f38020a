package net

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service under which relays advertise.
const ServiceType = "_sketchrelay._tcp"

var ErrNoRelayFound = errors.New("no relay found on the local network")

// Advertise announces a relay listening on port. Shut the returned server
// down to withdraw it.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, []string{"path=" + SocketPath})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	glog.Infof("[mdns]advertising %s on port %d\n", ServiceType, port)
	return server, nil
}

// Discover browses for a relay for up to timeout and returns the websocket
// URL of the first one that answers.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)

	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- RelayURL(e.AddrV4.String(), e.Port):
			default:
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	queryErr := make(chan error, 1)
	go func() {
		queryErr <- mdns.Query(params)
		close(entries)
	}()

	select {
	case url := <-found:
		return url, nil
	case err := <-queryErr:
		if err != nil {
			return "", fmt.Errorf("mdns query: %w", err)
		}
		select {
		case url := <-found:
			return url, nil
		default:
			return "", ErrNoRelayFound
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
