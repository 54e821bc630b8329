package protocol

import "errors"

var (
	// ErrInvalidMAC: сервер отверг MAC адрес.
	ErrInvalidMAC = errors.New("server rejected MAC address")

	// ErrInvalidCredentials: сервер отверг имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnknownResponse: неизвестный код ответа, никогда не трактуется как успех.
	ErrUnknownResponse = errors.New("unknown server response")

	// ErrUnexpectedCode: ответ на challenge с кодом отличным от 0x02.
	ErrUnexpectedCode = errors.New("unexpected response code")

	// ErrShortResponse: датаграмма короче читаемых из неё полей.
	ErrShortResponse = errors.New("response too short")

	// ErrUsernameTooLong: имя не помещается в поле login пакета.
	ErrUsernameTooLong = errors.New("username too long")
)
