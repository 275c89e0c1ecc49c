package rename

import (
	"strings"

	"github.com/obfdofus/abcdeob/internal/abcmodel"
)

// RenameInterfaceProxyKeys implements §4.7e: it walks proxyInit's body for
// alternating pushstring <key>/getproperty <name> pairs and, for every
// multiname still carrying one of RenameAll's placeholder prefixes
// (method/name/const, per fmts), renames it to the discovered key instead
// — the interface proxy's instance-init is the one place in the build
// where the real property name a placeholder stands in for is spelled out
// as a string literal.
func RenameInterfaceProxyKeys(pool *abcmodel.Pool, proxyInit *abcmodel.Method, fmts Formats) {
	if proxyInit == nil || !proxyInit.HasBody || proxyInit.Graph == nil {
		return
	}
	prefixes := placeholderPrefixes(fmts)
	var pendingKey string
	haveKey := false
	for ins := proxyInit.Graph.Head; ins != nil; ins = ins.Next {
		switch ins.Op {
		case abcmodel.OpPushString:
			pendingKey = pool.String(int(ins.Operands[0]))
			haveKey = true
		case abcmodel.OpGetProperty:
			if !haveKey {
				continue
			}
			mnIdx := int(ins.Operands[0])
			mn := pool.Multinames[mnIdx]
			haveKey = false
			if mn.Name <= 0 {
				continue
			}
			cur := pool.String(mn.Name)
			if !hasAnyPrefix(cur, prefixes) {
				continue
			}
			mn.Name = pool.AppendString(pendingKey)
			pool.Multinames[mnIdx] = mn
		}
	}
}

func placeholderPrefixes(fmts Formats) []string {
	return []string{templatePrefix(fmts.Methods), templatePrefix(fmts.Names), templatePrefix(fmts.Consts)}
}

func templatePrefix(tmpl string) string {
	if i := strings.Index(tmpl, "%"); i >= 0 {
		return tmpl[:i]
	}
	return tmpl
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
