// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ofswitch defines the controller's view of the OpenFlow 1.0
// switch channel (C2): the packet-in events it delivers and the
// flow-mod / packet-out messages the controller emits in response.
// The transport itself (the OpenFlow connection) is an external
// collaborator — this package only models the message shapes and the
// minimal parsing the dispatcher needs.
package ofswitch

import "net"

// PermanentTimeout marks a flow-mod's hard_timeout as "never expire".
const PermanentTimeout = 0

// PacketIn is a packet-in event delivered by the switch channel.
type PacketIn struct {
	DatapathID uint64
	InPort     int
	Packet     Packet
	BufferID   *uint32 // nil when the switch did not buffer the frame
	Raw        []byte  // the raw frame, always present as a fallback
}

// Packet is the controller's parsed view of an inbound frame: just
// enough of the Ethernet/ARP/IPv4/TCP headers for classification and
// flow-mod construction. Non-ARP, non-IPv4-TCP frames parse
// with Kind set accordingly so the dispatcher can drop them.
type Packet struct {
	Kind Kind

	SrcMAC, DstMAC net.HardwareAddr

	// ARP fields (valid when Kind == KindARP).
	ARPOpcode   ARPOpcode
	ARPSrcIP    net.IP
	ARPDstIP    net.IP
	ARPSrcMAC   net.HardwareAddr
	ARPDstMAC   net.HardwareAddr

	// TCP/IPv4 fields (valid when Kind == KindTCP).
	SrcIP, DstIP     net.IP
	SrcPort, DstPort int
}

// Kind classifies an inbound frame for the dispatch state machine.
type Kind int

const (
	KindOther Kind = iota
	KindARP
	KindTCP
)

// ARPOpcode mirrors the ARP opcode field.
type ARPOpcode int

const (
	ARPRequest ARPOpcode = 1
	ARPReply   ARPOpcode = 2
)

// Match is a wholesale 5-tuple-plus-L2 match derived from the
// incoming packet — exact match, no wildcards.
type Match struct {
	InPort                 int
	SrcMAC, DstMAC         net.HardwareAddr
	SrcIP, DstIP           net.IP
	SrcPort, DstPort       int
}

// ActionKind enumerates the OpenFlow 1.0 actions this controller emits.
type ActionKind int

const (
	ActionSetDLSrc ActionKind = iota
	ActionSetDLDst
	ActionSetNWSrc
	ActionSetNWDst
	ActionOutput
)

// Action is one OFPAT_* action in a flow-mod's action list.
type Action struct {
	Kind ActionKind
	MAC  net.HardwareAddr // for ActionSetDLSrc/Dst
	IP   net.IP           // for ActionSetNWSrc/Dst
	Port int              // for ActionOutput
}

// FlowMod is an OFPT_FLOW_MOD / OFPFC_ADD message.
type FlowMod struct {
	Match       Match
	Actions     []Action
	IdleTimeout int // seconds; 0 means no idle timeout
	HardTimeout int // PermanentTimeout for rules that never hard-expire
	BufferID    *uint32
	Raw         []byte // fallback frame, sent as packet-out if BufferID is nil
}

// PacketOut is an OFPT_PACKET_OUT message.
type PacketOut struct {
	BufferID *uint32
	Raw      []byte
	Flood    bool
	OutPort  int // used when !Flood
}

// Channel is the C2 switch-channel collaborator.
type Channel interface {
	// SwitchMAC returns the attached switch's own MAC address.
	SwitchMAC() net.HardwareAddr
	// SendPacketOut enqueues a packet-out, fire-and-forget.
	SendPacketOut(PacketOut)
	// SendFlowMod enqueues an OFPFC_ADD flow-mod, fire-and-forget.
	SendFlowMod(FlowMod)
}
