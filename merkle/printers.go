package merkle

import (
	"fmt"
	"strings"
)

// debug utilities

func (it ProofItem) String() string {
	siblings := make([]string, 0, len(it.Siblings))
	for i, s := range it.Siblings {
		if uint64(i) == it.Offset {
			siblings = append(siblings, "*")
			continue
		}
		siblings = append(siblings, s.String()[:8])
	}
	return fmt.Sprintf("%d:[%s]", it.Offset, strings.Join(siblings, " "))
}

func (p Proof) String() string {
	items := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, it.String())
	}
	return fmt.Sprintf("root=%s items=%s", p.Root, strings.Join(items, ", "))
}
