// Package compileinfoprint is imported for the side effect of printing the
// build's compileinfo to os.Stderr at startup.
package compileinfoprint

import "github.com/carbocation/qtmatrix/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
