/*
   Copyright The containerd Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package collaborators

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/unit"
)

// ServiceManagerProbe is the default attribute.ServiceManagerProbe: it
// asks systemd directly over its D-Bus API which unit owns a pid,
// deliberately avoiding `systemctl status`'s human-readable output and
// the documented $1/$2 capture-group bug in scraping it (§9 Open
// Questions).
type ServiceManagerProbe struct {
	Timeout time.Duration
}

// NewServiceManagerProbe returns a ServiceManagerProbe with a sane
// per-call timeout.
func NewServiceManagerProbe() *ServiceManagerProbe {
	return &ServiceManagerProbe{Timeout: 2 * time.Second}
}

func (p *ServiceManagerProbe) UnitForPid(pid int) (string, bool) {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return "", false
	}
	defer conn.Close()

	// GetUnitByPID returns the unit's D-Bus object path, not its name;
	// the name is the path-escaped final segment (e.g.
	// ".../unit/sshd_2eservice" → "sshd.service"). Only service units are
	// reported, by their bare name ("sshd").
	objPath, err := conn.GetUnitByPID(ctx, uint32(pid))
	if err != nil || objPath == "" {
		return "", false
	}
	name := unit.UnitNamePathUnescape(path.Base(string(objPath)))
	if !strings.HasSuffix(name, ".service") || name == ".service" {
		return "", false
	}
	return strings.TrimSuffix(name, ".service"), true
}
