package discovery

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// buildARPRequest serializes a 42-byte Ethernet+ARP request frame asking
// "who has targetIP", broadcast at the link layer, sourced from srcMAC/srcIP.
func buildARPRequest(srcMAC net.HardwareAddr, srcIP net.IP, targetIP net.IP) ([]byte, error) {
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       broadcastMAC,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: []byte(srcIP.To4()),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte(targetIP.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// arpReply is the sender identity extracted from an inbound ARP reply.
type arpReply struct {
	SenderIP  net.IP
	SenderMAC net.HardwareAddr
}

// parseARPReply inspects a raw Ethernet frame and, if it carries an ARP
// reply, returns the sender's protocol and hardware address. It returns
// ok=false for any frame that isn't an Ethernet/ARP-reply frame, including
// malformed ones — per-packet decode failures are not fatal to a scan.
func parseARPReply(frame []byte) (arpReply, bool) {
	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.NoCopy)

	ethLayer := packet.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return arpReply{}, false
	}
	eth, ok := ethLayer.(*layers.Ethernet)
	if !ok || eth.EthernetType != layers.EthernetTypeARP {
		return arpReply{}, false
	}

	arpLayer := packet.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return arpReply{}, false
	}
	arp, ok := arpLayer.(*layers.ARP)
	if !ok || arp.Operation != layers.ARPReply {
		return arpReply{}, false
	}

	return arpReply{
		SenderIP:  net.IP(arp.SourceProtAddress),
		SenderMAC: net.HardwareAddr(arp.SourceHwAddress),
	}, true
}
