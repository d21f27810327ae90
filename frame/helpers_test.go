package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/wirespec/bytecodec"
	"github.com/danmuck/wirespec/spec"
)

// knxSpec is a trimmed KNXnet/IP description: big endian, blocks carry a
// leading length byte, the body type hangs off the service identifier.
const knxSpec = `{
    "frame": [
        {"name": "header", "type": "HEADER"},
        {"name": "body", "type": "depends:service identifier"}
    ],
    "blocks": {
        "HEADER": [
            {"name": "header length", "type": "field", "size": 1, "is_length": true},
            {"name": "protocol version", "type": "field", "size": 1, "default": "10"},
            {"name": "service identifier", "type": "field", "size": 2},
            {"name": "total length", "type": "field", "size": 2, "is_length": true}
        ],
        "HPAI": [
            {"name": "structure length", "type": "field", "size": 1, "is_length": true},
            {"name": "host protocol code", "type": "field", "size": 1, "default": "01"},
            {"name": "ip address", "type": "field", "size": 4},
            {"name": "port", "type": "field", "size": 2}
        ],
        "DESCRIPTION REQUEST": [
            {"name": "control endpoint", "type": "HPAI"}
        ],
        "CONNECT REQUEST": [
            {"name": "control endpoint", "type": "HPAI"},
            {"name": "data endpoint", "type": "HPAI"},
            {"name": "connection request information", "type": "depends:connection type code"}
        ],
        "CRI CONNECTION REQUEST": [
            {"name": "structure length", "type": "field", "size": 1, "is_length": true},
            {"name": "connection type code", "type": "field", "size": 1, "default": "04"},
            {"name": "knx layer", "type": "field", "size": 1, "default": "02"},
            {"name": "reserved", "type": "field", "size": 1, "optional": true}
        ],
        "CEMI": [
            {"name": "message code", "type": "field", "size": 1},
            {"name": "additional info length", "type": "field", "size": 1},
            {"name": "frame type, reserved 1, repeat, broadcast, priority, ack request, confirm", "type": "field", "size": 1, "bitsizes": [1, 1, 1, 1, 2, 1, 1]}
        ]
    },
    "codes": {
        "service identifier": {
            "0203": "DESCRIPTION REQUEST",
            "0205": "CONNECT REQUEST"
        },
        "connection type code": {
            "04": "CRI CONNECTION REQUEST"
        }
    }
}`

// opcuaSpec is a trimmed OPC UA connection protocol: little endian,
// symbolic type codes on the wire, no per-block length byte.
const opcuaSpec = `{
    "frame": [
        {"name": "header", "type": "HEADER"},
        {"name": "body", "type": "depends:message_type"}
    ],
    "blocks": {
        "HEADER": [
            {"name": "message_type", "type": "field", "size": 3},
            {"name": "is_final", "type": "field", "size": 1, "default": "46"},
            {"name": "message_size", "type": "field", "size": 4, "is_length": true}
        ],
        "HEL_BODY": [
            {"name": "protocol_version", "type": "field", "size": 4},
            {"name": "receive_buffer_size", "type": "field", "size": 4},
            {"name": "send_buffer_size", "type": "field", "size": 4},
            {"name": "max_message_size", "type": "field", "size": 4},
            {"name": "max_chunk_count", "type": "field", "size": 4},
            {"name": "endpoint_url_length", "type": "field", "size": 4},
            {"name": "endpoint_url", "type": "field", "optional": true}
        ],
        "ACK_BODY": [
            {"name": "protocol_version", "type": "field", "size": 4},
            {"name": "receive_buffer_size", "type": "field", "size": 4},
            {"name": "send_buffer_size", "type": "field", "size": 4},
            {"name": "max_message_size", "type": "field", "size": 4},
            {"name": "max_chunk_count", "type": "field", "size": 4}
        ]
    },
    "codes": {
        "message_type": {
            "HEL": "HEL_BODY",
            "ACK": "ACK_BODY"
        }
    }
}`

func testRegistry(t *testing.T, doc string) *spec.Registry {
	t.Helper()
	r := spec.New()
	require.NoError(t, r.ParseJSON([]byte(doc)))
	return r
}

func opcuaOptions() []Option {
	return []Option{
		WithByteOrder(bytecodec.LittleEndian),
		WithTypeField("message_type"),
		WithTotalField("message_size"),
		WithoutLengthPrefix(),
	}
}
