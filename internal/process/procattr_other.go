//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func setProcAttr(*exec.Cmd) {}

func killProcess(p *os.Process) error {
	return p.Kill()
}
