package domain

const MaxRoomNameLen = 36

// RoomName is the immutable, process-unique identifier of a chat room.
type RoomName string
