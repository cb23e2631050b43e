/*
Package health implements the local probes drover runs against its own
frontend ports.

Two checker kinds exist. TCPChecker dials an address and reports
reachability; the readiness endpoint probes every configured frontend
port with it. ExecChecker runs a shell command and maps the exit code
to a result; `drover check --scripts` uses it to execute the exact
commands keepalived tracks, so an operator can validate the failover
scripts before a peer relies on them.
*/
package health
