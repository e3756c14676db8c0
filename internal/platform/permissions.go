package platform

import "github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"

// Platform permission names used by grouping and storage logic
const (
	PermCamera                = "android.permission.CAMERA"
	PermRecordAudio           = "android.permission.RECORD_AUDIO"
	PermFineLocation          = "android.permission.ACCESS_FINE_LOCATION"
	PermCoarseLocation        = "android.permission.ACCESS_COARSE_LOCATION"
	PermBackgroundLocation    = "android.permission.ACCESS_BACKGROUND_LOCATION"
	PermReadExternalStorage   = "android.permission.READ_EXTERNAL_STORAGE"
	PermWriteExternalStorage  = "android.permission.WRITE_EXTERNAL_STORAGE"
	PermManageExternalStorage = "android.permission.MANAGE_EXTERNAL_STORAGE"
	PermReadContacts          = "android.permission.READ_CONTACTS"
	PermWriteContacts         = "android.permission.WRITE_CONTACTS"
	PermGetAccounts           = "android.permission.GET_ACCOUNTS"
	PermReadCalendar          = "android.permission.READ_CALENDAR"
	PermWriteCalendar         = "android.permission.WRITE_CALENDAR"
	PermSendSMS               = "android.permission.SEND_SMS"
	PermReceiveSMS            = "android.permission.RECEIVE_SMS"
	PermReadSMS               = "android.permission.READ_SMS"
	PermReadPhoneState        = "android.permission.READ_PHONE_STATE"
	PermCallPhone             = "android.permission.CALL_PHONE"
	PermReadCallLog           = "android.permission.READ_CALL_LOG"
	PermBodySensors           = "android.permission.BODY_SENSORS"
	PermActivityRecognition   = "android.permission.ACTIVITY_RECOGNITION"
	PermBluetoothScan         = "android.permission.BLUETOOTH_SCAN"
	PermBluetoothConnect      = "android.permission.BLUETOOTH_CONNECT"
	PermPostNotifications     = "android.permission.POST_NOTIFICATIONS"
	PermReadMediaAudio        = "android.permission.READ_MEDIA_AUDIO"
	PermReadMediaImages       = "android.permission.READ_MEDIA_IMAGES"
	PermReadMediaVideo        = "android.permission.READ_MEDIA_VIDEO"
)

// legacyStorageTargetSDK is the first target SDK with scoped storage enforced (R)
const legacyStorageTargetSDK = permgroup.SDKLevelR

// DefaultPermissionGroups maps runtime permissions to their platform group
func DefaultPermissionGroups() map[string]string {
	return map[string]string{
		PermCamera:               permgroup.Camera,
		PermRecordAudio:          permgroup.Microphone,
		PermFineLocation:         permgroup.Location,
		PermCoarseLocation:       permgroup.Location,
		PermBackgroundLocation:   permgroup.Location,
		PermReadExternalStorage:  permgroup.Storage,
		PermWriteExternalStorage: permgroup.Storage,
		PermReadContacts:         permgroup.Contacts,
		PermWriteContacts:        permgroup.Contacts,
		PermGetAccounts:          permgroup.Contacts,
		PermReadCalendar:         permgroup.Calendar,
		PermWriteCalendar:        permgroup.Calendar,
		PermSendSMS:              permgroup.SMS,
		PermReceiveSMS:           permgroup.SMS,
		PermReadSMS:              permgroup.SMS,
		PermReadPhoneState:       permgroup.Phone,
		PermCallPhone:            permgroup.Phone,
		PermReadCallLog:          permgroup.CallLog,
		PermBodySensors:          permgroup.Sensors,
		PermActivityRecognition:  permgroup.ActivityRecognition,
		PermBluetoothScan:        permgroup.NearbyDevices,
		PermBluetoothConnect:     permgroup.NearbyDevices,
		PermPostNotifications:    permgroup.Notifications,
		PermReadMediaAudio:       permgroup.ReadMediaAural,
		PermReadMediaImages:      permgroup.ReadMediaVisual,
		PermReadMediaVideo:       permgroup.ReadMediaVisual,
	}
}
