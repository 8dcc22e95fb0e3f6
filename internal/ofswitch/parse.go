// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofswitch

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// ParseFrame decodes a raw Ethernet frame into the controller's Packet
// view, in the same layer-by-layer style cmd/flywall-sim's replayer
// uses to pull ARP/IPv4/TCP fields out of a gopacket.Packet.
func ParseFrame(raw []byte) Packet {
	gp := gopacket.NewPacket(raw, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	var pkt Packet
	if eth, ok := gp.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		pkt.SrcMAC = eth.SrcMAC
		pkt.DstMAC = eth.DstMAC
	}

	if arp, ok := gp.Layer(layers.LayerTypeARP).(*layers.ARP); ok {
		pkt.Kind = KindARP
		pkt.ARPOpcode = ARPOpcode(arp.Operation)
		pkt.ARPSrcIP = net.IP(arp.SourceProtAddress)
		pkt.ARPDstIP = net.IP(arp.DstProtAddress)
		pkt.ARPSrcMAC = net.HardwareAddr(arp.SourceHwAddress)
		pkt.ARPDstMAC = net.HardwareAddr(arp.DstHwAddress)
		return pkt
	}

	ipv4, hasIP := gp.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	tcp, hasTCP := gp.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if hasIP && hasTCP {
		pkt.Kind = KindTCP
		pkt.SrcIP = ipv4.SrcIP
		pkt.DstIP = ipv4.DstIP
		pkt.SrcPort = int(tcp.SrcPort)
		pkt.DstPort = int(tcp.DstPort)
		return pkt
	}

	pkt.Kind = KindOther
	return pkt
}
