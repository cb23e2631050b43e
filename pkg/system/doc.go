/*
Package system wraps the host's package and service control primitives.

Drover shells out to apt and systemctl the same way an operator would;
this package owns those invocations behind two small interfaces so the
rest of the codebase never touches os/exec directly.

# Core Components

  - Runner: executes one command, returns combined output (ExecRunner on
    a real host, fakes in tests)
  - PackageManager / AptManager: apt update, apt install -yq, apt purge -yq
  - ServiceManager / SystemdManager: systemctl start/stop/restart/reload
    and is-active

# Failure Semantics

Every operation either fully succeeds or returns an error wrapping the
underlying exec failure together with the command's combined output.
Nothing here retries; callers re-drive reconciliation on the next event.

systemctl is-active exits non-zero for inactive units; SystemdManager
treats a readable state string as a valid answer, not a failure.

# Usage

	pkgs := system.NewAptManager(nil)
	if err := pkgs.Install(ctx, "haproxy"); err != nil {
		return err
	}

	svc := system.NewSystemdManager(nil)
	if err := svc.Restart(ctx, "haproxy"); err != nil {
		return err
	}
*/
package system
