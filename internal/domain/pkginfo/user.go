package pkginfo

import "strconv"

// perUserRange is the number of uids reserved for each user.
// Mirrors PER_USER_RANGE in android.os.UserHandle.
const perUserRange = 100000

// UserHandle identifies a device user (0 is the system/primary user)
type UserHandle int

// UserSystem is the primary device user
const UserSystem UserHandle = 0

// UserForUID returns the user that owns uid
func UserForUID(uid int) UserHandle {
	return UserHandle(uid / perUserRange)
}

// AppID strips the user component from uid
func AppID(uid int) int {
	return uid % perUserRange
}

// UID composes the full uid of appID for this user
func (u UserHandle) UID(appID int) int {
	return int(u)*perUserRange + AppID(appID)
}

// String returns the decimal user id
func (u UserHandle) String() string {
	return strconv.Itoa(int(u))
}
