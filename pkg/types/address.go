package types

import (
	"net"
	"strconv"
)

// ValidateHostPort 校验 host:port 格式的网络地址
//
// host 可以是 IP 或主机名，port 必须在 1-65535 之间。
func ValidateHostPort(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return ErrInvalidAddress
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return ErrInvalidAddress
	}
	return nil
}
