/*
Package template renders Drover's configuration artifacts.

Three templates ship embedded in the binary:

  - haproxy.cfg.tmpl: the listen sections loaded by haproxy in addition
    to the distribution's own configuration
  - haproxy.env.tmpl: the /etc/default/haproxy wiring pointing the
    packaged unit at the drover-rendered config
  - keepalived.conf.tmpl: the VRRP drop-in for the failover companion

Rendering is deterministic for identical context; the same data always
produces byte-identical artifacts, which keeps reconfiguration
idempotent and lets the keepalived publisher skip reloads when nothing
changed.

Operators can override the shipped templates by pointing the agent at a
directory of *.tmpl files with the same names (NewRendererFromDir).
*/
package template
