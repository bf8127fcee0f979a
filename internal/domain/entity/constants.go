package entity

// VehicleType is the homologation category of the vehicle under review
type VehicleType string

// Vehicle type constants
const (
	VehicleTypePassengerCar VehicleType = "PASSENGER_CAR"
	VehicleTypeMotorcycle   VehicleType = "MOTORCYCLE"
	VehicleTypeTruck        VehicleType = "TRUCK"
	VehicleTypeBus          VehicleType = "BUS"
	VehicleTypeTrailer      VehicleType = "TRAILER"
	VehicleTypeAgricultural VehicleType = "AGRICULTURAL"
)

// IsValid checks if the vehicle type is one of the defined constants
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypePassengerCar,
		VehicleTypeMotorcycle,
		VehicleTypeTruck,
		VehicleTypeBus,
		VehicleTypeTrailer,
		VehicleTypeAgricultural:
		return true
	default:
		return false
	}
}

// Attachment kind constants
const (
	AttachmentKindPhoto    = "PHOTO"    // Vehicle photographs
	AttachmentKindDocument = "DOCUMENT" // Invoices, certificates, technical sheets
)

// Audit entity types
const (
	AuditEntitySubmission = "submission"
)

// Audit action constants
const (
	AuditActionCreate        = "CREATE"
	AuditActionUpdate        = "UPDATE"
	AuditActionDelete        = "DELETE"
	AuditActionStatusChange  = "STATUS_CHANGE"
	AuditActionAttachmentAdd = "ATTACHMENT_ADD"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// SystemActorPaymentGateway is the actor id used for gateway-confirmed payments
const SystemActorPaymentGateway = "payment-gateway"
