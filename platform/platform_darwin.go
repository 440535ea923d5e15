//go:build darwin

package platform

import (
	"errors"
	"fmt"
	"unsafe"
)

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa -framework ApplicationServices
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// const char* frontmostBundleID() {
//     NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
//     return [[app bundleIdentifier] UTF8String];
// }
// int activateBundleID(const char* bundleID) {
//     NSString *identifier = [NSString stringWithUTF8String:bundleID];
//     NSArray<NSRunningApplication *> *apps =
//         [NSRunningApplication runningApplicationsWithBundleIdentifier:identifier];
//     if ([apps count] == 0) {
//         return 1;
//     }
//     return [apps[0] activateWithOptions:NSApplicationActivateIgnoringOtherApps] ? 0 : 2;
// }
// int synthesizePaste() {
//     CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
//     if (source == NULL) {
//         return 1;
//     }
//     CGEventRef keyDown = CGEventCreateKeyboardEvent(source, (CGKeyCode)9, true); // 'v'
//     CGEventRef keyUp = CGEventCreateKeyboardEvent(source, (CGKeyCode)9, false);
//     if (keyDown == NULL || keyUp == NULL) {
//         if (keyDown) CFRelease(keyDown);
//         if (keyUp) CFRelease(keyUp);
//         CFRelease(source);
//         return 1;
//     }
//     CGEventSetFlags(keyDown, kCGEventFlagMaskCommand);
//     CGEventSetFlags(keyUp, kCGEventFlagMaskCommand);
//     CGEventPost(kCGHIDEventTap, keyDown);
//     CGEventPost(kCGHIDEventTap, keyUp);
//     CFRelease(keyDown);
//     CFRelease(keyUp);
//     CFRelease(source);
//     return 0;
// }
import "C"

func frontmostApp() string {
	cstr := C.frontmostBundleID()
	if cstr == nil {
		return ""
	}
	return C.GoString(cstr)
}

func activateApp(appID string) error {
	cstr := C.CString(appID)
	defer C.free(unsafe.Pointer(cstr))

	switch C.activateBundleID(cstr) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("application not running: %s", appID)
	default:
		return fmt.Errorf("activate application: %s", appID)
	}
}

func sendPaste() error {
	if C.synthesizePaste() != 0 {
		return errors.New("synthesize paste keystroke: accessibility permission required")
	}
	return nil
}
