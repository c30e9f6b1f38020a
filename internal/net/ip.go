package net

import (
	"fmt"
	"net"

	"github.com/golang/glog"
)

// SocketPath is where the relay serves websocket connections.
const SocketPath = "/api/socket"

// RelayURL builds the websocket URL for a relay at host:port.
func RelayURL(host string, port int) string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(host, fmt.Sprint(port)), SocketPath)
}

// ShareURL is the URL other machines on the network can use to join.
func ShareURL(port int) string {
	ip, err := OutgoingIP()
	if err != nil {
		ip = "127.0.0.1"
	}
	return RelayURL(ip, port)
}

// OutgoingIP finds the preferred local IP address to hand out.
func OutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route out; pick an interface instead
		return localIPFallback()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

func localIPFallback() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	glog.Warningln("[net]no suitable local IP found, share URL uses loopback")
	return "127.0.0.1", nil
}
