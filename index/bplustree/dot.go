package bplustree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ExportDOT writes the tree as a Graphviz digraph: internal nodes in blue,
// leaves in green with their locators, and the leaf chain as dashed edges.
// Render with `dot -Tpng`.
func (bt *Tree) ExportDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph BPlusTree {")
	fmt.Fprintln(bw, "  graph [ranksep=0.8, nodesep=0.5, bgcolor=\"#ffffff\", rankdir=TB];")
	fmt.Fprintln(bw, "  node [shape=none, fontname=\"Helvetica\", fontsize=10];")
	fmt.Fprintln(bw, "  edge [arrowsize=0.8, color=\"#444444\"];")

	var leaves []nodeID
	var export func(id nodeID)
	export = func(id nodeID) {
		n := bt.node(id)
		var label strings.Builder
		if n.leaf {
			fmt.Fprintf(&label, `<<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="4">`+
				`<TR><TD COLSPAN="%d" BGCOLOR="#D5E8D4"><B>LEAF %d</B></TD></TR><TR>`, max(len(n.keys), 1), id)
			for i, k := range n.keys {
				fmt.Fprintf(&label, `<TD BGCOLOR="#F5F5F5"><B>%d</B><BR/><FONT POINT-SIZE="8" COLOR="#666666">%d</FONT></TD>`, k, n.values[i])
			}
			label.WriteString(`</TR></TABLE>>`)
			fmt.Fprintf(bw, "  n%d [label=%s];\n", id, label.String())
			leaves = append(leaves, id)
			return
		}

		fmt.Fprintf(&label, `<<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0" CELLPADDING="4">`+
			`<TR><TD COLSPAN="%d" BGCOLOR="#DAE8FC"><B>NODE %d</B></TD></TR><TR>`, 2*len(n.keys)+1, id)
		for i, k := range n.keys {
			fmt.Fprintf(&label, `<TD PORT="f%d" BGCOLOR="#E1F5FE"> </TD><TD BGCOLOR="#FFFFFF"><B>%d</B></TD>`, i, k)
		}
		fmt.Fprintf(&label, `<TD PORT="f%d" BGCOLOR="#E1F5FE"> </TD></TR></TABLE>>`, len(n.keys))
		fmt.Fprintf(bw, "  n%d [label=%s];\n", id, label.String())

		for i, child := range n.children {
			export(child)
			fmt.Fprintf(bw, "  n%d:f%d -> n%d;\n", id, i, child)
		}
	}

	if bt.root != nilNode {
		export(bt.root)
	}

	if len(leaves) > 1 {
		fmt.Fprint(bw, "  { rank=same;")
		for _, id := range leaves {
			fmt.Fprintf(bw, " n%d;", id)
		}
		fmt.Fprintln(bw, " }")
		for _, id := range leaves {
			if next := bt.node(id).next; next != nilNode {
				fmt.Fprintf(bw, "  n%d -> n%d [style=dashed, color=\"#03A9F4\", constraint=false];\n", id, next)
			}
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
