package trapctx

import (
	"testing"

	"config"
	"mem"
	"pagetable"
	"vm"
)

func TestPortalInstallSharesSamePPNAcrossSpaces(t *testing.T) {
	alloc := mem.NewAllocator(0, 32)
	kernelAS := vm.New(alloc)
	portal := NewPortal(alloc, kernelAS)

	userAS := vm.New(alloc)
	portal.Install(userAS, kernelAS)

	if _, _, ok := userAS.Translate(config.PortalVPN<<12, pagetable.R); !ok {
		t.Fatal("expected the portal VPN to translate in the new address space after Install")
	}
}
