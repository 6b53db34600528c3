package constants

//============== UPLOAD CONTEXTS ==============

type UploadContext string

const (
	UploadContextResearchPhoto UploadContext = "research_photo"
	UploadContextResearchSheet UploadContext = "research_sheet"
)

func (uc UploadContext) String() string {
	return string(uc)
}

//============== CACHE KEYS ==============

const (
	// lockout:<userID> -> "locked"
	CacheKeyLockout = "lockout:%d"
	// login_attempts:<userID> -> count
	CacheKeyLoginAttempts = "login_attempts:%d"
	// auth:permissions:role:<roleID> -> json []string
	CacheKeyRolePermissions = "auth:permissions:role:%d"
	// auth:revoked:<jti> -> "1", TTL = remaining token lifetime
	CacheKeyRevokedToken = "auth:revoked:%s"
	// auth:not_before:<userID> -> unix nanoseconds; tokens issued earlier are invalid
	CacheKeyUserNotBefore = "auth:not_before:%d"
	// auth:family:<familyID> -> "revoked"
	CacheKeyTokenFamily = "auth:family:%s"
	// map:stations:<hash of query>
	CacheKeyMapStations = "map:stations:%s"
)

//============== ROLES ==============

const (
	RoleAdmin    = "admin"
	RoleDirector = "director"
	RoleManager  = "manager"
	RoleAnalyst  = "analyst"
)

//============== NOTIFICATIONS ==============

const (
	NotificationApprovalRequired = "approval_required"
	NotificationApproved         = "suggestion_approved"
	NotificationRejected         = "suggestion_rejected"
	NotificationLevelApproved    = "suggestion_level_approved"
	NotificationPendingReminder  = "pending_reminder"
)
