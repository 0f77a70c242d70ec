// Package armfdir implements the stack-unwinding core of a Failure
// Detection, Identification and Recovery facility for ARM Cortex-M. Given
// the register snapshot captured at a synchronous fault and read-only
// access to the .ARM.exidx/.ARM.extab sections of the running firmware
// image, it reconstructs the suspended call chain by decoding the ARM
// Exception Handling ABI's compact unwind tables.
//
// The package performs no dynamic allocation and no I/O; every exported
// function here is safe to call from inside a fault handler.
package armfdir
