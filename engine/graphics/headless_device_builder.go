package graphics

// HeadlessDeviceOption is a functional option for configuring a HeadlessDevice.
// Use the With* functions to create options.
type HeadlessDeviceOption func(d *headlessDevice)

// WithObjectBudget caps the number of live objects the device will allocate.
// CreateObject fails once the budget is reached, which lets callers exercise
// the resource-exhaustion path. Pass 0 for no cap (default).
//
// Parameters:
//   - budget: the maximum live object count (0 = unlimited)
//
// Returns:
//   - HeadlessDeviceOption: option function to apply
func WithObjectBudget(budget int) HeadlessDeviceOption {
	return func(d *headlessDevice) {
		if budget < 0 {
			budget = 0
		}
		d.budget = budget
	}
}
