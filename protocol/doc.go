package protocol

// This package implements parsing and serialising the line protocol that Parley
// uses to talk to it's clients.
//
// The protocol aims to be
//
// - trivially usable from netcat/telnet
// - human readable
// - one line per command, one status line per command
//
// - `Command` - A line sent by a client to the server.
// - `Reply`   - A line sent by the server in answer to a command.
// - `Event`   - A line the server pushes to a client because of something its
//               chat partner did (pairing started, partner left, message).
//
// === General Syntax
//
// - lines are `\n` delimited, a trailing `\r` is tolerated on input
// - text is UTF-8
// - command keywords are case insensitive
//
// Events can interleave with replies: a `FROM` line from the partner may arrive
// between a command and its status line. Every line is written atomically.
//
// === Handshake
//
//  ```
//    < OK Welcome. Send your name:
//    > alice
//    < CONNECTED
//    < OK Commands: /chat <name> | /leave | /bye | target:message | or plain message after /chat
//  ```
//
// If the name is empty the server replies `ERR empty name`, if it is in use it
// replies `NAME_TAKEN`. In both cases the connection is closed afterwards.
//
// === Commands
//
//  ```
//    > /chat bob            < CHAT_STARTED bob     (bob receives CHAT_STARTED alice)
//    > hello                < OK sent              (bob receives FROM alice: hello)
//    > bob:hello            < OK sent              (pairs with bob first if needed)
//    > /leave               < OK left chat         (bob receives PEER_LEFT alice)
//    > /bye                 < OK bye               (connection is closed)
//  ```
//
// `bye` and `exit` are aliases of `/bye`.
//
// === Error replies
//
//  ```
//    ERR cannot chat with yourself
//    USER_NOT_FOUND
//    ALREADY_IN_CHAT_WITH <name>
//    USER_BUSY <name>
//    ERR you are not in a chat (use /chat <name> or target:message)
//    ERR usage: /chat <name>
//  ```
//
// === Partner events
//
//  ```
//    CHAT_STARTED <name>
//    PEER_LEFT <name>
//    OK chat ended (<reason>)
//    FROM <name>: <text>
//  ```
