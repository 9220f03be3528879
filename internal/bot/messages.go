package bot

import (
	"fmt"
	"time"

	"github.com/celerix-dev/alphabot/internal/engine"
)

const helpTemplate = `
Supported Commands:
    ` + "`status`" + ` : Returns the status of the %[1]s e.g. ` + "`%[2]s status`" + `

    ` + "`checkout`" + ` : Attempts to check out the %[1]s e.g. ` + "`%[2]s checkout`" + `

        -force: Force check out to the current user e.g. ` + "`%[2]s checkout -force`" + `

    ` + "`checkin`" + ` : Attempts to check in the %[1]s to make it available again e.g. ` + "`%[2]s checkin`" + `

        -force: Force check in the remote workstation e.g. ` + "`%[2]s checkin -force`" + `

    ` + "`help`" + ` : Displays this help message

`

func (d *Dispatcher) helpText() string {
	return fmt.Sprintf(helpTemplate, d.cfg.ResourceName, d.cfg.WakeWord)
}

func (d *Dispatcher) unknownText() string {
	return fmt.Sprintf("Unknown Command - Try `%s help` to see supported commands", d.cfg.WakeWord)
}

func (d *Dispatcher) statusText(state engine.LockState, elapsed time.Duration) string {
	if state.Free() {
		return d.cfg.ResourceName + " is available!"
	}
	return fmt.Sprintf("%s is in use by: %s (%s min)", d.cfg.ResourceName, state.Holder, engine.ElapsedMinutes(elapsed))
}

func (d *Dispatcher) outcomeText(out engine.Outcome) string {
	name := d.cfg.ResourceName
	switch out.Result {
	case engine.CheckedOut:
		return fmt.Sprintf("Checkout Successful - %s Checked out by: %s", name, out.Holder)
	case engine.ForceCheckedOut:
		return fmt.Sprintf("Force Checkout Successful - %s Checked out by: %s", name, out.Holder)
	case engine.CheckoutDenied:
		return fmt.Sprintf("Checkout Failed - %s is in use by: %s (%s min)", name, out.Holder, engine.ElapsedMinutes(out.Elapsed))
	case engine.CheckedIn:
		return fmt.Sprintf("Check In Successful - %s is now Available", name)
	case engine.ForceCheckedIn:
		return fmt.Sprintf("Force Check In Successful - %s is now available", name)
	case engine.CheckinDenied:
		return fmt.Sprintf("Check In Failed - %s is in use by: %s", name, out.Holder)
	case engine.AlreadyFree:
		return fmt.Sprintf("Check In Failed - %s is already available", name)
	}
	return d.unknownText()
}
