// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ofswitch

import (
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// BuildARPRequest serializes an ARP-request frame: Ethernet type
// 0x0806, hw_type=1, proto_type=0x0800, opcode=1, hw_src=switchMAC,
// hw_dst=broadcast, proto_src=srcIP, proto_dst=targetIP.
func BuildARPRequest(switchMAC net.HardwareAddr, srcIP, targetIP net.IP) ([]byte, error) {
	return buildARP(switchMAC, broadcastMAC, srcIP, targetIP, layers.ARPRequest)
}

// BuildARPReply serializes an ARP-reply frame answering on behalf of
// the switch itself for one of its service IPs.
func BuildARPReply(switchMAC net.HardwareAddr, dstMAC net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	return buildARP(switchMAC, dstMAC, srcIP, dstIP, layers.ARPReply)
}

func buildARP(srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, op uint16) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         op,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: []byte(srcIP.To4()),
		DstHwAddress:      []byte(dstMAC),
		DstProtAddress:    []byte(dstIP.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
