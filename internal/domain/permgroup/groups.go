package permgroup

import "strings"

// Platform permission group names
const (
	ActivityRecognition = "android.permission-group.ACTIVITY_RECOGNITION"
	Calendar            = "android.permission-group.CALENDAR"
	CallLog             = "android.permission-group.CALL_LOG"
	Camera              = "android.permission-group.CAMERA"
	Contacts            = "android.permission-group.CONTACTS"
	Location            = "android.permission-group.LOCATION"
	Microphone          = "android.permission-group.MICROPHONE"
	NearbyDevices       = "android.permission-group.NEARBY_DEVICES"
	Notifications       = "android.permission-group.NOTIFICATIONS"
	Phone               = "android.permission-group.PHONE"
	ReadMediaAural      = "android.permission-group.READ_MEDIA_AURAL"
	ReadMediaVisual     = "android.permission-group.READ_MEDIA_VISUAL"
	Sensors             = "android.permission-group.SENSORS"
	SMS                 = "android.permission-group.SMS"
	Storage             = "android.permission-group.STORAGE"
	Undefined           = "android.permission-group.UNDEFINED"
)

// Platform SDK levels referenced by grouping logic
const (
	SDKLevelR = 30
	SDKLevelS = 31
	SDKLevelT = 33
)

// Known lists every group the controller renders a screen for
var Known = []string{
	Calendar, CallLog, Camera, Contacts, Location, Microphone, NearbyDevices,
	Notifications, Phone, ReadMediaAural, ReadMediaVisual, Sensors, SMS, Storage,
	ActivityRecognition,
}

// IsKnown reports whether name is a group the controller renders
func IsKnown(name string) bool {
	for _, g := range Known {
		if g == name {
			return true
		}
	}
	return false
}

// groupPrefix is the namespace shared by every platform group name
const groupPrefix = "android.permission-group."

// Resolve accepts a full group name or its short form ("camera", "CALL_LOG")
// and returns the full name of a known group
func Resolve(name string) (string, bool) {
	if IsKnown(name) {
		return name, true
	}
	full := groupPrefix + strings.ToUpper(name)
	if IsKnown(full) {
		return full, true
	}
	return "", false
}

// StorageOverrideApplies reports whether full file access forces the Allowed
// category. Only the Storage group before T is affected; from T onward storage
// is split into media groups.
func StorageOverrideApplies(sdk int, group string) bool {
	return sdk < SDKLevelT && group == Storage
}
