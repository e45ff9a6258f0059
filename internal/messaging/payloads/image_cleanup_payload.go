package payloads

// Причины удаления изображения.
const (
	CleanupReasonPostDeleted   = "post_deleted"
	CleanupReasonImageReplaced = "image_replaced"
	CleanupReasonCreateFailed  = "create_failed"
	CleanupReasonUpdateFailed  = "update_failed"
)

// ImageCleanupPayload — задача на удаление объекта из хранилища изображений
// через RabbitMQ.
type ImageCleanupPayload struct {
	Key    string `json:"key"`
	PostID string `json:"post_id"`
	Reason string `json:"reason"`
}
